// Package mux implements a request router and dispatcher for matching
// incoming HTTP requests to their respective handler functions.
//
// # Router
//
// Create a new router and register handlers:
//
//	r := mux.NewRouter()
//	r.HandleFunc("/pets/{id<\d+>}", showPet).Methods(http.MethodGet).Name("pets.show")
//	http.Handle("/", r)
//
// # Path Patterns
//
// Routes are matched against path patterns. A placeholder is enclosed in
// curly braces and may carry a regular expression constraint in angle
// brackets. Parentheses mark an optional part of the path:
//
//	/pets/{id}                  any single segment
//	/pets/{id<\d+>}             digits only
//	/archive(/{year<\d{4}>})    year is optional
//
// Variables are extracted and stored in the request context, accessible
// via the Vars function:
//
//	vars := mux.Vars(r)
//
// # Route Description
//
// Routes carry a name, tags, a summary and a description. Together with
// the path pattern and methods these feed the openapi package, which
// walks the router to assemble a document.
package mux
