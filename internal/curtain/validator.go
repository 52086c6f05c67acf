package curtain

import "github.com/nerrad567/curtain-skill/internal/intent"

// IsInDomain reports whether a classified intent addresses curtains.
//
// A device entity qualifies when its device_type metadata is "curtain", or
// when it is flagged generic and its normalized value is "curtain". An
// intent without device entities never qualifies.
func IsInDomain(ci intent.ClassifiedIntent) bool {
	_, ok := curtainEntity(ci)
	return ok
}

// curtainEntity returns the first device entity that qualifies.
func curtainEntity(ci intent.ClassifiedIntent) (intent.Entity, bool) {
	for _, e := range ci.EntitiesOf(intent.EntityDevice) {
		if e.MetaString(intent.MetaDeviceType) == DeviceType {
			return e, true
		}
		if e.MetaBool(intent.MetaIsGeneric) && e.Value() == DeviceType {
			return e, true
		}
	}
	return intent.Entity{}, false
}
