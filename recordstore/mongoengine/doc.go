// Package mongoengine provides a MongoDB-backed implementation of the record
// store read contract defined in the recordstore package.
//
// Record store collections map one-to-one to MongoDB collections, documents
// travel as extended JSON payloads, and filters translate to plain query
// documents ($or across filter items, $exists for presence checks). Distinct
// value queries use the driver's Distinct helper and grouped counts use an
// aggregation pipeline with $group, $sum, and $addToSet.
package mongoengine
