// Package ledger records run history in a SQLite database kept beside the
// output tree. Every batch run gets a runs row at start, one jobs row per
// processed input, and a final count update, so past runs stay inspectable
// after their console output is gone. The schema is versioned; a mismatch
// asks the user to clear the ledger rather than migrating silently.
package ledger
