// Package accessgate owns principal capabilities for the governance ledger:
// role bundles for admins and authorized callers, voter registration and
// verification, and cached permission checks.
package accessgate
