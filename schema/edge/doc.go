// Package edge provides fluent builders for relationship fields.
//
// Relationships are declared on one or both participants. When both sides
// are declared, Ref links them and the registry checks that they agree:
//
//	// Order
//	edge.OneToMany("items", "LineItem").Ref("order")
//	// LineItem
//	edge.ManyToOne("order", "Order").Column("order_id")
//
// One-to-one pairs have exactly one owner, the side whose table holds the
// foreign key:
//
//	edge.OneToOne("profile", "Profile").Owner("User").Column("profile_id")
//
// Many-to-many relationships are stored in a join table named after both
// participants, first participant first. Inverse marks the second one:
//
//	// Post
//	edge.ManyToMany("tags", "Tag")            // join table posts_tags
//	// Tag
//	edge.ManyToMany("posts", "Post").Inverse().Ref("tags")
package edge
