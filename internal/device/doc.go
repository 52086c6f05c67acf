// Package device provides the global device registry shared by assistant
// skills.
//
// Devices live in SQLite (tables rooms, device_types, global_devices) and
// are read through a Registry that keeps an immutable in-memory Snapshot.
// The snapshot only changes when Refresh is called, which the skill does
// at startup and on every message on the device-update topic.
//
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(repo)
//	if err := registry.Refresh(ctx); err != nil {
//	    return err
//	}
//
//	curtains, _ := registry.ListDevices(ctx, device.Filter{
//	    DeviceType: "curtain",
//	    Rooms:      []string{"studio"},
//	})
//
// Entries are schemaless beyond name, type, room and pattern; each skill
// interprets the Attributes map for its own device type.
package device
