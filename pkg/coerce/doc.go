/*
Package coerce converts columns between logical types without losing track of
missing values.

Every conversion has two outputs: the converted column and the pandas
expression that performs the same transform, so a step can execute and
transpile from a single rule.

	res, err := coerce.Convert(col, domain.DtypeInt, "df1['A']")
	// res.Column     -> the int64 column
	// res.Expression -> "df1['A'].astype('int')"

Conversions only touch positions that hold a value. Missing positions are
recorded with NaNIndexes before the transform and put back afterwards, so
converting to a type and back never moves a missing value. When a bool or
int result holds missing values the expression targets the pandas nullable
dtypes ('boolean', 'Int64') so the generated code keeps them missing too.

A target may also be a logical type name ("number", "boolean", "string",
"timestamp", "duration"). A column that already has that logical type is
left unchanged.
*/
package coerce
