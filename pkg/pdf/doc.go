// Package pdf turns rendered report HTML into PDF documents. Layouts are
// chosen by report category; headers, footers and watermarks use a small
// {{key}} substitution language. Printing is delegated to a headless browser
// owned by a Generator; watermarks are stamped afterwards.
package pdf
