// Package throwable converts between exception trees and their canonical
// "print stack trace" text.
//
// The text form is line oriented and uses tabs as the only indentation unit:
//
//	java.lang.RuntimeException: boom
//		at com.acme.Foo.bar(Foo.java:10) [acme-core.jar:1.2.3]
//		... 3 more
//		Suppressed: java.lang.IllegalStateException: close failed
//			at com.acme.Res.close(Res.java:7)
//	Caused by: java.lang.NullPointerException
//		at com.acme.Foo.baz(Foo.java:5)
//
// Format writes a Node tree in that form and never fails; nodes already
// written are replaced by CircularReferenceMarker. Parse reads it back and is
// lenient: malformed lines are dropped or end the current region, and the
// reasons are reported as Warnings rather than errors.
package throwable
