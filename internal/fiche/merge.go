package fiche

import "time"

// metaKey is owned by Merge; patches cannot write it.
const metaKey = "meta"

// Merge deep-merges patch into a copy of p and returns the copy. Objects
// merge key by key; arrays and scalars replace; nil values leave the target
// untouched. When anything was written, meta.updated_at is set to now and
// meta.created_at is stamped on the first write. p is never modified.
func Merge(p Profile, patch map[string]any, now time.Time) Profile {
	out := p.Clone()
	if out == nil {
		out = Profile{}
	}

	written := 0
	for k, v := range patch {
		if k == metaKey {
			continue
		}
		written += mergeValue(out, k, v)
	}
	if written == 0 {
		return out
	}

	meta, _ := out[metaKey].(map[string]any)
	if meta == nil {
		meta = map[string]any{}
		out[metaKey] = meta
	}
	stamp := now.UTC().Format(time.RFC3339)
	if s, _ := meta["created_at"].(string); s == "" {
		meta["created_at"] = stamp
	}
	meta["updated_at"] = stamp
	return out
}

// mergeValue writes v under key in dst and returns the number of leaves written.
func mergeValue(dst map[string]any, key string, v any) int {
	if v == nil {
		return 0
	}
	src, ok := v.(map[string]any)
	if !ok {
		dst[key] = deepCopy(v)
		return 1
	}
	target, ok := dst[key].(map[string]any)
	if !ok {
		target = map[string]any{}
	}
	written := 0
	for k, sv := range src {
		written += mergeValue(target, k, sv)
	}
	if written > 0 {
		dst[key] = target
	}
	return written
}
