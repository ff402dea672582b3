// Package control provides the excitation signals that drive plants while
// identification data is generated.
//
// Sources implement the [dynamo.Controller] interface:
//
//   - [Random]: seeded uniform excitation
//   - [None]: zero control
package control
