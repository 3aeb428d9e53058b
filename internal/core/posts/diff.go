package posts

// MediaDiff is the result of comparing a post's old attachments with a new set.
type MediaDiff struct {
	Unchanged []Media
	Added     []Media
	Removed   []Media
}

// DiffMedia compares two attachment lists by file identifier.
//
//	Unchanged = old ∩ new (items taken from new)
//	Added     = new − old
//	Removed   = old − new
//
// Items without a file identifier (pending uploads) are ignored, and duplicate
// identifiers within one list are collapsed to their first occurrence.
// Output order follows input order.
func DiffMedia(old, updated []Media) MediaDiff {
	oldIDs := fileIDSet(old)
	newIDs := fileIDSet(updated)

	var diff MediaDiff
	seen := make(map[string]struct{}, len(updated))
	for _, item := range updated {
		id := item.FileID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, ok := oldIDs[id]; ok {
			diff.Unchanged = append(diff.Unchanged, item)
		} else {
			diff.Added = append(diff.Added, item)
		}
	}

	seen = make(map[string]struct{}, len(old))
	for _, item := range old {
		id := item.FileID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, ok := newIDs[id]; !ok {
			diff.Removed = append(diff.Removed, item)
		}
	}

	return diff
}

// FileIDs lists the file identifiers of items, for logging.
func FileIDs(items []Media) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.FileID())
	}
	return ids
}

func fileIDSet(items []Media) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if id := item.FileID(); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
