package store

// userBucketEntry is one visit reference in a user's bucket. The visit time
// is denormalized into the entry so ordered insertion never has to touch the
// visit table.
type userBucketEntry struct {
	visitID   uint32
	visitedAt int64
}

// visitIndex holds the two secondary indices derived from the visit table.
// User buckets are kept ascending by visit time; location buckets carry no
// order because aggregation is order-independent.
//
// The index never decides what changed on an update. The facade issues
// explicit add/remove calls and the index only executes them, reporting
// remove-by-id misses back to the caller so divergence is never swallowed.
type visitIndex struct {
	byUser     map[uint32][]userBucketEntry
	byLocation map[uint32][]uint32
}

func newVisitIndex() *visitIndex {
	return &visitIndex{
		byUser:     make(map[uint32][]userBucketEntry),
		byLocation: make(map[uint32][]uint32),
	}
}

// addToUser inserts the visit at the position preserving ascending visit
// time. A linear scan is fine: bucket size is bounded by one user's
// real-world visit count, not by the dataset.
func (ix *visitIndex) addToUser(userID, visitID uint32, visitedAt int64) {
	bucket := ix.byUser[userID]
	pos := len(bucket)
	for i, entry := range bucket {
		if visitedAt < entry.visitedAt {
			pos = i
			break
		}
	}
	bucket = append(bucket, userBucketEntry{})
	copy(bucket[pos+1:], bucket[pos:])
	bucket[pos] = userBucketEntry{visitID: visitID, visitedAt: visitedAt}
	ix.byUser[userID] = bucket
}

// removeFromUser removes the visit from the user's bucket by id. A false
// return means the entry was absent, which indicates index/table divergence.
func (ix *visitIndex) removeFromUser(userID, visitID uint32) bool {
	bucket := ix.byUser[userID]
	for i, entry := range bucket {
		if entry.visitID == visitID {
			ix.byUser[userID] = append(bucket[:i], bucket[i+1:]...)
			return true
		}
	}
	return false
}

func (ix *visitIndex) addToLocation(locationID, visitID uint32) {
	ix.byLocation[locationID] = append(ix.byLocation[locationID], visitID)
}

func (ix *visitIndex) removeFromLocation(locationID, visitID uint32) bool {
	bucket := ix.byLocation[locationID]
	for i, id := range bucket {
		if id == visitID {
			ix.byLocation[locationID] = append(bucket[:i], bucket[i+1:]...)
			return true
		}
	}
	return false
}

func (ix *visitIndex) userBucket(userID uint32) []userBucketEntry {
	return ix.byUser[userID]
}

func (ix *visitIndex) locationBucket(locationID uint32) []uint32 {
	return ix.byLocation[locationID]
}
