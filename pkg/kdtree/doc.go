// Package kdtree implements a two dimensional kd-tree tuned for one job:
// being rebuilt from scratch many times per second by many goroutines at once,
// then answering lots of small "who is around me" queries.
//
// The tree is insert-only. There is no delete and no rebalancing; callers that
// need an up to date index throw the whole tree away and build a new one.
//
// # Concurrency
//
// Insert may be called from any number of goroutines on the same Tree without
// external locking. Every inner node carries a spin lock (an atomic flag set by
// compare-and-swap) that is only held while a child slot is filled, a leaf is
// split into a new subtree, or a value is appended to a leaf. Hold times are
// constant, so spinning is bounded. Contention is highest near the root while
// the tree is still shallow and fades as it grows.
//
// Queries are NOT safe to run while inserts into the same Tree are in flight.
// The intended usage is generational: goroutines read the frozen tree of the
// previous step and write into the tree of the next one.
//
// # Approximate search
//
// FindApproxNearest and VisitApproxNearest return at most maxCount values
// within radius of the query point, closest first. The search always descends
// into the query point's side of a split first and only looks at the other
// side while fewer than maxCount candidates were found and the split plane is
// within radius. Once maxCount candidates are found the search stops, so
// truly closer points in unexplored branches can be missed. This bounds the
// cost of a query independently of local density.
//
// # Coordinates
//
// Coordinates are not validated. NaN or infinite values produce an undefined
// placement. Several values inserted at exactly the same coordinates share a
// single multi-value leaf and are all returned by a query.
package kdtree
