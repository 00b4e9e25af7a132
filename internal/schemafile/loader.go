// Package schemafile loads metadata snapshots from CUE files, so views can
// be imported and compiled offline against a pinned schema instead of a
// live metadata endpoint.
//
// A snapshot directory contains .cue files of the shape:
//
//	entity: account: {
//		entitySetName: "accounts"
//		displayName:   "Account"
//		primaryId:     "accountid"
//		primaryName:   "name"
//		attribute: name: {type: "String", displayName: "Account Name"}
//		relationship: contact_customer_accounts: {
//			referencing:          "contact"
//			referenced:           "account"
//			referencingAttribute: "parentcustomerid"
//			referencingNavigation: "parentcustomerid"
//			referencedNavigation:  "contact_customer_accounts"
//		}
//	}
package schemafile

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// CompileError is a snapshot validation failure with the CUE position of
// the offending field.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and validates every CUE file in a directory into a Snapshot.
func Load(dir string) (*Snapshot, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema directory: %s is not a directory", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}

	snap := newSnapshot()
	entitiesVal := value.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &CompileError{Field: "entity", Message: "no entity definitions found", Pos: value.Pos()}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	for iter.Next() {
		def, err := compileEntity(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		snap.add(def)
	}
	if len(snap.entities) == 0 {
		return nil, &CompileError{Field: "entity", Message: "no entity definitions found", Pos: value.Pos()}
	}
	return snap, nil
}
