/*
Package preview hands datasets to the rendering layer.

ToRecord converts a Dataset into an Apache Arrow record. Missing values
become nulls in the validity bitmap. Markdown renders a record as a table
for terminals and notebooks.
*/
package preview
