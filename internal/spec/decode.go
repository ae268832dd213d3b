package spec

import (
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/xeipuuv/gojsonschema"

	"github.com/compd-sh/compd/internal/cerrors"
)

// Decode deserializes a spec blob for the named command. The blob is
// validated structurally before unmarshalling so that an externally
// authored spec can never take down a lookup with a type confusion.
func Decode(name string, blob []byte) (*Spec, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(blob))
	if err != nil {
		// Not JSON at all.
		return nil, cerrors.NewSpecCorruptError(name, "spec blob is not valid JSON", err)
	}
	if !result.Valid() {
		msg := "spec blob does not match schema"
		if errs := result.Errors(); len(errs) > 0 {
			msg = errs[0].String()
		}
		return nil, cerrors.NewSpecCorruptError(name, msg, nil)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(blob), json.Parser()); err != nil {
		return nil, cerrors.NewSpecCorruptError(name, "failed to parse spec blob", err)
	}

	if v := k.Int("version"); v != CurrentVersion {
		return nil, cerrors.NewSpecVersionError(name, CurrentVersion, v)
	}

	var s Spec
	if err := k.Unmarshal("", &s); err != nil {
		return nil, cerrors.NewSpecCorruptError(name, "failed to decode spec blob", err)
	}

	s.normalize()
	return &s, nil
}
