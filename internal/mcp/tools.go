package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/orientation-agent/internal/export"
)

var startInterviewTool = mcp.NewTool("start_interview",
	mcp.WithDescription("Start a new study-abroad orientation interview. Returns the session id and the first question to relay to the student."),
)

var answerTool = mcp.NewTool("answer",
	mcp.WithDescription("Submit the student's answer to the current question. Returns the next message to show: a follow-up, the next question, or the closing synthesis."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by start_interview"),
	),
	mcp.WithString("answer",
		mcp.Required(),
		mcp.Description("The student's answer, verbatim"),
	),
)

var skipQuestionTool = mcp.NewTool("skip_question",
	mcp.WithDescription("Skip the current question without judging an answer."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by start_interview"),
	),
)

var finishInterviewTool = mcp.NewTool("finish_interview",
	mcp.WithDescription("End the interview now and generate the synthesis, mindmap and recap."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by start_interview"),
	),
)

var getSessionTool = mcp.NewTool("get_session",
	mcp.WithDescription("Get the state of an interview: phase, progress, pending question and, once finished, the synthesis cards."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id"),
	),
)

var listSessionsTool = mcp.NewTool("list_sessions",
	mcp.WithDescription("List stored interviews, most recently updated first."),
)

var exportSessionTool = mcp.NewTool("export_session",
	mcp.WithDescription("Export an interview: the profile JSON, the dialogue, the Mermaid mindmap or the Markdown recap."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id"),
	),
	mcp.WithString("kind",
		mcp.Required(),
		mcp.Description("Export format"),
		mcp.Enum(string(export.KindProfile), string(export.KindDialogue), string(export.KindMindmap), string(export.KindRecap)),
	),
)
