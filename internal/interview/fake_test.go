package interview

import (
	"context"
	"sync"

	"github.com/ziadkadry99/orientation-agent/internal/llm"
	"github.com/ziadkadry99/orientation-agent/internal/questions"
)

type fakeReply struct {
	obj map[string]any
	err error
}

type fakeCall struct {
	name   string
	system string
	user   string
}

// fakeModel is a scripted Completer: replies are queued per call name
// (decision, extraction, rephrase, reformulate, summary, recap).
type fakeModel struct {
	mu     sync.Mutex
	queues map[string][]fakeReply
	calls  []fakeCall
}

func newFakeModel() *fakeModel {
	return &fakeModel{queues: map[string][]fakeReply{}}
}

func (f *fakeModel) on(name string, obj map[string]any) *fakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[name] = append(f.queues[name], fakeReply{obj: obj})
	return f
}

func (f *fakeModel) fail(name string, err error) *fakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[name] = append(f.queues[name], fakeReply{err: err})
	return f
}

func (f *fakeModel) CompleteJSON(ctx context.Context, system, user string, opts llm.CallOptions) (map[string]any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{name: opts.Name, system: system, user: user})
	var r fakeReply
	if q := f.queues[opts.Name]; len(q) > 0 {
		r = q[0]
		f.queues[opts.Name] = q[1:]
	} else {
		r = fakeReply{obj: map[string]any{}}
	}
	f.mu.Unlock()
	return r.obj, r.err
}

func (f *fakeModel) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func (f *fakeModel) last(name string) fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].name == name {
			return f.calls[i]
		}
	}
	return fakeCall{}
}

func answered() map[string]any {
	return map[string]any{"answered": true, "next_action": "next_question", "reason": "ok"}
}

func followup(text string, missing ...string) map[string]any {
	m := []any{}
	for _, s := range missing {
		m = append(m, s)
	}
	return map[string]any{"answered": false, "next_action": "ask_followup", "followup_question": text, "missing_points": m}
}

func intPtr(n int) *int { return &n }

func testQuestions() []questions.Question {
	return []questions.Question{
		{ID: "motivation", Text: "Pourquoi as-tu envie de partir à l'étranger ?", ProfileFields: []string{"motivation"}},
		{ID: "sejour", Text: "Quel format de séjour t'attire le plus ?", ProfileFields: []string{"sejour"}},
		{ID: "experiences", Text: "As-tu déjà vécu à l'étranger ?", MaxFollowups: intPtr(1), SkipRevisit: true, ProfileFields: []string{"experiences_passees"}},
	}
}
