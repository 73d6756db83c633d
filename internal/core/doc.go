// Package core holds the transformation pipeline of the data transformer.
//
// Nothing in this package knows about HTTP or HTML. The web layer builds
// [Job] values from a request and hands them to [Service.ProcessBatch]; the
// same calls work from tests or a CLI.
//
// # Pipeline
//
// Every uploaded file goes through the same stages, in order:
//
//  1. [Load] parses CSV or XLSX bytes into a [Table], inferring each
//     column's kind from its values
//  2. [RemoveDuplicates] drops rows identical to an earlier row
//  3. [FillMissingNumeric] replaces missing numeric cells with the column mean
//  4. [SelectColumns] keeps only the chosen columns, in the chosen order
//  5. [Chart] extracts up to two numeric series for a bar chart
//  6. [Export] serializes the result as CSV or a single-sheet XLSX workbook
//
// Stages 2 to 6 are optional and driven by [UserChoices]. Stages never
// modify their input table.
//
// # Errors
//
// Errors are scoped to one file. A failing file records its error in its
// [FileResult] and the rest of the batch carries on. Problems that do not
// stop a file, such as an unknown selected column, are kept as warnings.
// [MapError] turns any of them into a [UserMessage] with a support code.
//
// # Concurrency
//
// [UploadLimiter] caps the number of batches running at once. Within a
// batch, files are processed by a bounded errgroup.
package core
