package engagement

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/goccy/go-json"

	"github.com/exhale-app/exhale/internal/domain"
)

// Snapshots are decoded field by field so that one unreadable value costs
// that value only. Skipped fields are reported as paths such as
// "lastGiftDate" or "achievements[3].rarity" and left to the repair pass.

// decodeProgression decodes a progression record. err is set only when raw
// is not a JSON object.
func decodeProgression(raw []byte) (p domain.ProgressionSnapshot, skipped []string, err error) {
	fields, err := objectFields(raw)
	if err != nil {
		return p, nil, err
	}
	if v, ok := fields["profile"]; ok {
		delete(fields, "profile")
		if bad, ok := decodeNested(v, &p.Profile, "profile"); ok {
			skipped = append(skipped, bad...)
		} else {
			skipped = append(skipped, "profile")
		}
	}
	if v, ok := fields["dailyTasks"]; ok {
		delete(fields, "dailyTasks")
		var bad []string
		p.DailyTasks, bad = decodeElems[domain.DailyTask](v, "dailyTasks")
		skipped = append(skipped, bad...)
	}
	skipped = append(skipped, decodeFields(fields, &p, "")...)
	return p, skipped, nil
}

// decodeAchievements decodes the achievements record. unlockedCount is
// derived, so it is not read back.
func decodeAchievements(raw []byte) (a domain.AchievementsSnapshot, skipped []string, err error) {
	fields, err := objectFields(raw)
	if err != nil {
		return a, nil, err
	}
	var bad []string
	a.Achievements, bad = decodeElems[domain.Achievement](fields["achievements"], "achievements")
	skipped = append(skipped, bad...)
	a.Milestones, bad = decodeElems[domain.Milestone](fields["milestones"], "milestones")
	skipped = append(skipped, bad...)
	return a, skipped, nil
}

// objectFields splits a JSON object into raw fields.
func objectFields(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not an object", domain.ErrCorruptSnapshot)
	}
	return fields, nil
}

// decodeFields decodes each field into dst on its own. A field that fails
// leaves dst untouched and its path is returned.
func decodeFields(fields map[string]json.RawMessage, dst any, prefix string) (skipped []string) {
	scratch := reflect.TypeOf(dst).Elem()
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		one, err := json.Marshal(map[string]json.RawMessage{name: fields[name]})
		if err == nil {
			// Trial decode first: a failed decode can leave partial state behind.
			err = json.Unmarshal(one, reflect.New(scratch).Interface())
		}
		if err == nil {
			err = json.Unmarshal(one, dst)
		}
		if err != nil {
			skipped = append(skipped, prefix+name)
		}
	}
	return skipped
}

// decodeNested decodes the object raw into dst field by field. ok is false
// when raw is not an object; dst is then untouched.
func decodeNested(raw json.RawMessage, dst any, path string) (skipped []string, ok bool) {
	fields, err := objectFields(raw)
	if err != nil {
		return nil, false
	}
	return decodeFields(fields, dst, path+"."), true
}

// decodeElems decodes a JSON array element by element. Elements that are
// not objects are dropped. An absent or null array yields nil.
func decodeElems[T any](raw json.RawMessage, path string) (out []T, skipped []string) {
	if len(raw) == 0 {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, []string{path}
	}
	for i, e := range elems {
		var v T
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		bad, ok := decodeNested(e, &v, elemPath)
		if !ok {
			skipped = append(skipped, elemPath)
			continue
		}
		skipped = append(skipped, bad...)
		out = append(out, v)
	}
	return out, skipped
}
