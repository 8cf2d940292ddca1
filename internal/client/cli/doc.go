// Package cli provides the interactive bookstore storefront client.
//
// The App reads commands from a REPL and renders the Session and Catalog
// stores to the terminal. Commands are intents: they call store methods and
// print the resulting state. Success and error messages produced by the
// stores are shown by the notifier the stores were built with.
//
// Commands
//
//	help                      show available commands
//	register | login | logout manage the session
//	whoami                    show the signed-in account
//	books                     list the catalog
//	search                    filter by text, genre, author and rating
//	suggest <text>            show matching search suggestions
//	show <id>                 open a book with its reviews
//	rate <stars>              rate the open book (1-5)
//	review                    rate and/or review the open book
//	like | dislike <reviewId> vote on a review of the open book
//	genres | authors          list catalog facets
//	admin add|edit <id>|delete <id>
//	                          manage the catalog (administrators only)
//	exit | quit               leave the program
//
// App.Run blocks until the user exits or input ends.
package cli
