// Package scope runs CRUD operations with the caller's tenant enforced.
//
// Every Execute call is validated first: the principal must be bound to the
// requested tenant and the tenant must be active. Only then is the operation
// sent to the Store, with the validated tenant id written into the filter
// (read, update, delete) and the payload (create, update). Tenant values the
// caller put there are overwritten.
//
//	s := scope.New(validator, store)
//	res, err := s.Execute(ctx, scope.Request{
//		Operation:   scope.OpRead,
//		Table:       "students",
//		PrincipalID: "u1",
//		TenantID:    "t1",
//		Filter:      scope.Row{"grade": 5},
//	})
//
// Rows read back that carry a different tenant abort the call with
// ErrForeignRow, so a single result never mixes tenants.
package scope
