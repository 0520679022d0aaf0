// Package cache stores extracted text keyed by the MD5 digest of the
// original document bytes. For both backends a failed read is a miss and
// a failed write is a no-op; neither ever blocks the extraction pipeline.
package cache

// entry is the persisted shape of one cache record.
type entry struct {
	Text string `json:"text"`
}
