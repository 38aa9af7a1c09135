package domain

import "strings"

// DynamicRecordExt is the suffix of the sidecar file that records the
// dependencies a dynamic rule discovered on its last successful run.
const DynamicRecordExt = ".rude.dep"

// DynamicRecordFor returns the sidecar record name of target.
func DynamicRecordFor(target string) string {
	return target + DynamicRecordExt
}

// TargetForDynamicRecord returns the target that owns the sidecar record.
func TargetForDynamicRecord(record string) string {
	return strings.TrimSuffix(record, DynamicRecordExt)
}

// IsDynamicRecord reports whether name is a sidecar record.
func IsDynamicRecord(name string) bool {
	return strings.HasSuffix(name, DynamicRecordExt)
}
