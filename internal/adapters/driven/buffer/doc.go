// Package buffer provides a write buffer in front of an entity driver.
//
// Published entities are acknowledged as Queued and held in an in-memory
// queue. Once the queue is full, or while older overflow is still on
// disk, further entities are written to numbered page files on a Volume.
// Flush publishes the queue and then the pages, oldest first, to the
// target driver, so entities reach the target in publish order. Nothing
// is dropped while the target is unavailable.
//
// Reads, object queries, deletes and empties pass straight through to the
// target and do not see entities that are still buffered.
package buffer
