/*
Package treekv persists a schema-typed data tree into a transactional
key-value store and reads it back.

Every node of the tree is stored under its own key. A key is one partition
prefix byte followed by the encoded path of the node (see package stream);
the value is the encoded node itself. Several trees can share a keyspace as
long as they use different prefixes.

# Writing

A Txn collects puts and deletes. Encoding happens right away, so a node that
cannot be encoded is reported by Put rather than by Commit. Commit submits
everything as one store transaction: either all of it becomes visible, or none
of it does. A Txn is single-use; after Commit (or Discard) it rejects further
calls with ErrTxnClosed.

# Reading

KV.Get reads one node. KV.ReadAllInto scans the whole partition and writes
every node into a tree.Sink. Encoded paths begin with their length, so a
partition scan returns parents before their children, and replaying in scan
order always finds the parent in place.

A replay decodes every entry before the sink sees the first one. A single
undecodable entry fails the whole replay with an *EntryError and leaves the
sink untouched.

# Stores

Client abstracts the store. NewMemClient and OpenBoltClient provide embedded
stores with etcd-like revisions; NewEtcdClient and DialEtcd talk to etcd.
Every store call is bounded by Options.Timeout and reports a *TimeoutError
when the store does not answer in time.
*/
package treekv
