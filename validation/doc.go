// Package validation checks configuration structs with go-playground
// validator tags and reports failures as an INVALID_INPUT AppError.
//
// Rules that tags cannot express are added with Check:
//
//	return validation.New().
//		Struct(c).
//		Check(err == nil, "http.keep_alive", "must be a duration such as 15s").
//		Err()
package validation
