package audit

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-faster/errors"
	"github.com/wI2L/jsondiff"
)

var emptyObject = []byte("{}")

func (r Record) oldDocument() []byte {
	if r.OldValuesJSON == nil {
		return emptyObject
	}
	return []byte(*r.OldValuesJSON)
}

func (r Record) newDocument() []byte {
	if r.NewValuesJSON == nil {
		return emptyObject
	}
	return []byte(*r.NewValuesJSON)
}

// Patch returns the RFC 6902 patch turning the old values into the new values. Created records
// diff against an empty object and Deleted records diff to one.
func (r Record) Patch() (jsondiff.Patch, error) {
	patch, err := jsondiff.CompareJSON(r.oldDocument(), r.newDocument())
	if err != nil {
		return nil, errors.Wrapf(err, "diff audit record %d", r.ID)
	}
	return patch, nil
}

// Reconstruct applies Patch to the old values and returns the resulting document.
func (r Record) Reconstruct() ([]byte, error) {
	patch, err := r.Patch()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, errors.Wrap(err, "encode patch")
	}
	if len(patch) == 0 {
		return r.oldDocument(), nil
	}
	decoded, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode patch")
	}
	out, err := decoded.Apply(r.oldDocument())
	if err != nil {
		return nil, errors.Wrapf(err, "apply patch to audit record %d", r.ID)
	}
	return out, nil
}

// Verify checks that the stored values are consistent: applying the diff to the old values
// yields the new values, and for updates the changed-field list names exactly the top-level
// fields the diff touches, ignoring store-generated columns listed in ignore.
func (r Record) Verify(ignore ...string) error {
	rebuilt, err := r.Reconstruct()
	if err != nil {
		return err
	}
	if !jsonpatch.Equal(rebuilt, r.newDocument()) {
		return errors.Errorf("audit record %d: new values do not follow from old values", r.ID)
	}
	if r.Operation != OperationUpdated {
		return nil
	}
	changed, err := r.ChangedFields()
	if err != nil {
		return err
	}
	oldValues, err := r.OldValues()
	if err != nil {
		return err
	}
	newValues, err := r.NewValues()
	if err != nil {
		return err
	}
	skip := make(map[string]struct{}, len(ignore))
	for _, f := range ignore {
		skip[f] = struct{}{}
	}
	listed := make(map[string]struct{}, len(changed))
	for _, f := range changed {
		listed[f] = struct{}{}
	}
	for _, kv := range newValues {
		if _, ok := skip[kv.Field]; ok {
			continue
		}
		prior, _ := oldValues.Get(kv.Field)
		a, _ := json.Marshal(prior)
		b, _ := json.Marshal(kv.Value)
		_, isListed := listed[kv.Field]
		if differs := string(a) != string(b); differs != isListed {
			return errors.Errorf("audit record %d: field %s changed=%t but listed=%t", r.ID, kv.Field, differs, isListed)
		}
	}
	return nil
}
