// Package listing implements the list controller behind the book list view.
//
// A Model owns the typed search text, the committed search term, the page
// cursor and the last page result. It follows the bubbles component shape:
// actions return a tea.Cmd and results come back through Update.
//
// Typing restarts a debounce tick tagged with a counter; only the tick
// carrying the latest tag commits the term, resets the page to 1 and
// fetches. Every fetch gets a new generation and cancels the previous
// request's context, and PageLoadedMsg values from older generations are
// dropped, so a slow response can never overwrite a newer one.
//
// Window computes the page indicators for the pager with GapBefore and
// GapAfter marking elided runs.
package listing
