// Package tenancy assembles the tenant context layer of the school
// management backend.
//
// A Service owns one resolver (with its cache), one access validator, one
// query scoper and one initialization race guard, configured from
// TENANT_* environment variables:
//
//	cfg, err := tenancy.LoadConfig()
//	if err != nil {
//		return err
//	}
//	svc, err := tenancy.New(cfg, pg.NewDirectory(pool), pg.NewStore(pool),
//		tenancy.WithLogger(log),
//		tenancy.WithRedis(client),
//	)
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//	go svc.Listen(ctx)
//
// Every data operation goes through Execute, which validates the caller's
// tenant before the store is touched:
//
//	res, err := svc.Execute(ctx, scope.Request{
//		Operation:   scope.OpRead,
//		Table:       "students",
//		PrincipalID: principalID,
//		TenantID:    tenantID,
//	})
//
// HTTP handlers that serve a named tenant use RequireAccess with an
// Extractor (FromHeader, FromSubdomain, FromPath or FirstOf). Handlers tied
// to a single client session use Middleware, which waits for the guard.
package tenancy
