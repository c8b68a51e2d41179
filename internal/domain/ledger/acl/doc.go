// Package acl is the Anti-Corruption Layer between the cash-custody
// contexts and their external collaborators.
//
// The ledger settles money against billable items (fiche-navette lines)
// owned by the clinical billing context, gates privileged operations on
// roles owned by the identity context and validates bank references owned
// by the treasury configuration context. None of those aggregates are
// reimplemented here; the interfaces in this package are their minimal
// local view, implemented in the infrastructure layer.
package acl
