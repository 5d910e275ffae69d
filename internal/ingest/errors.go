package ingest

import "errors"

// Sentinel errors classifying operational upload failures. Validation
// rejections are not errors in this sense; they travel in the receipt.
// ErrPersistence marks a failure to durably record an accepted upload.
// Nothing was committed: no ledger row exists and no original remains.
var ErrPersistence = errors.New("upload persistence failed")
