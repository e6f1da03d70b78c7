package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aayaan07/quantum-kavach/pkg/wizard/schema"
)

// ParseFieldValue converts text input to the value type of fd. Choice
// input must name one of the field's options; evidence cannot be entered
// as text.
func ParseFieldValue(fd *schema.FieldDef, raw string) (any, error) {
	switch fd.Type {
	case schema.FieldBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("field %q expects true or false, got %q", fd.Name, raw)
		}
		return b, nil
	case schema.FieldChoice:
		v := strings.TrimSpace(raw)
		if !fd.HasOption(v) {
			opts := make([]string, 0, len(fd.Options))
			for _, o := range fd.Options {
				opts = append(opts, o.Value)
			}
			return nil, fmt.Errorf("field %q expects one of %s, got %q", fd.Name, strings.Join(opts, ", "), v)
		}
		return v, nil
	case schema.FieldEvidence:
		return nil, fmt.Errorf("field %q holds evidence and is filled by attaching files", fd.Name)
	default:
		return raw, nil
	}
}
