// Package mongo stores tenant-scoped rows in MongoDB.
//
// New connects and pings with retries driven by Config, which is read from
// MONGODB_* environment variables. Store implements scope.Store with one
// collection per table: filters are plain equality documents, updates use
// $set, and a row's "id" doubles as its _id.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "")
//	if err != nil {
//		return err
//	}
//	scoper := scope.New(validator, mongo.NewStore(db))
//
// Store refuses any operation without a tenant value with
// ErrMissingTenantFilter. Scoping itself is the caller's job.
package mongo
