// Package diagram defines the network diagram document model.
//
// # Overview
//
// A [Document] holds one or more [Page] values, and each page holds the
// [Element] values drawn on it. Three element kinds exist:
//
//   - device: a network node (router, server, laptop, smartphone, wifi)
//     with a position, size, optional name and IP address
//   - connection: a link between two devices on the same page
//   - text: a free text label with a position
//
// Every element may carry a [Style] with fill and stroke colors, stroke
// width and dash pattern.
//
// # Default Document
//
// [NewDocument] returns the document an empty editor exports:
//
//	{
//	  "version": "1.0",
//	  "type": "drawio",
//	  "pages": [
//	    {"id": "page1", "name": "Network Diagram", "elements": []}
//	  ]
//	}
//
// A fresh value is built on every call; callers may mutate it freely.
//
// # Invariants
//
// [Validate] checks the full schema and the referential rules:
//
//   - page IDs are unique within a document
//   - element IDs are unique within a page
//   - connection endpoints exist on the same page, are devices, and differ
//   - the version is MAJOR.MINOR with a supported major version
//   - the type is "drawio"
//
// Page mutations ([Page.Add], [Page.Remove], [Page.Update]) keep these
// invariants: removing a device also removes every connection touching it.
//
// # Merging
//
// [Merge] folds one document into another. Pages are matched by ID; element
// ID collisions are resolved by a [ConflictPolicy].
package diagram
