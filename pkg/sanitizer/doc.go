// Package sanitizer normalises user-supplied fields before validation and storage.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Invalid input is handled by returning empty strings or empty slices
// rather than errors; the validator then rejects what is left.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number])
//   - Emails: Trim and lowercase
//   - URLs: Enforce HTTPS, lowercase domains, preserve paths
//   - Names, titles and cities: Collapse whitespace, trim leading/trailing spaces
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer
