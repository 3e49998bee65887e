// Package output implements the C6 Output Assembler (spec.md §4.6): it
// installs a co-located data array onto the observation's own domain, and
// compresses multiple per-file trajectory results into a single
// contiguous-ragged-array (CRA) discrete-sampling-geometry field.
package output

import (
	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/internal/lazyarray"
)

// Assemble attaches result onto obs's domain and the model field's
// semantic identity, per spec.md §4.6: "copy the obs field's domain;
// install the weighted data; clear properties and copy the model field's
// properties; append to history".
func Assemble(result *lazyarray.Array, obs, model *cf.Field, historyMessage string) *cf.Field {
	nf := obs.Copy()
	nf.StandardName = model.StandardName
	nf.Units = model.Units
	nf.CellMethods = model.CellMethods
	nf.Properties = map[string]string{}
	for k, v := range model.Properties {
		nf.Properties[k] = v
	}
	nf.Data = result
	nf.AppendHistory(historyMessage)
	return nf
}
