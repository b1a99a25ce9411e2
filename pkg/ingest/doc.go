// Package ingest loads delimited text into datasets.
//
// Every column is typed by inference, so the dtypes match what a dataframe
// library would report after reading the same file. Input is decoded to
// UTF-8 first; a leading byte order mark is honored and removed.
package ingest
