// Package language maps user-facing language identifiers to the two-letter
// codes the recognition engine expects.
//
// Inputs arrive in many shapes: ISO 639-1 codes ("zh"), ISO 639-2 codes
// ("zho", "chi"), English names ("chinese"), and BCP 47 tags ("zh-CN").
// Normalize collapses all of them. The common cases resolve through a fixed
// table; everything else falls back to golang.org/x/text parsing so the long
// tail of valid codes still passes validation.
package language
