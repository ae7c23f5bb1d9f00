package methodology

import "errors"

// ErrInconsistent is returned by Tables.Validate for any table defect,
// for example a DSP profile that targets a persona outside the closed set.
// It is a start-up error and never surfaces while valuing a payload.
var ErrInconsistent = errors.New("inconsistent methodology tables")
