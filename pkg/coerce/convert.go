package coerce

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// Result is the dual output of a conversion.
type Result struct {
	// Column is the converted column. It is the input column when nothing changed.
	Column domain.Column

	// Expression is the pandas expression producing the converted column from
	// the input expression. It is empty when the conversion is a no-op or is
	// not supported, in which case no code should be generated.
	Expression string

	// Failed counts present values that could not be converted and became
	// missing (or false, for booleans).
	Failed int

	// Datetime is set when strings were parsed as datetimes.
	Datetime *DatetimeFormat
}

// Changed reports whether the conversion produced a new column.
func (r Result) Changed() bool { return r.Expression != "" }

// rule converts a single present value. ok=false marks a failed conversion;
// the returned value is still used when it is not nil.
//
// nullable, when set, replaces expr for results holding missing values,
// since the numpy bool and int dtypes cannot hold them.
type rule struct {
	value    func(v any) (out any, ok bool)
	expr     func(c string) string
	nullable func(c string) string
}

type pair struct {
	from kind
	to   domain.Dtype
}

var rules = map[pair]rule{
	{kindBool, domain.DtypeInt}:    {boolToInt, astype("int"), nullableInt},
	{kindBool, domain.DtypeFloat}:  {boolToFloat, astype("float"), nil},
	{kindBool, domain.DtypeObject}: {toText, astype("str"), nil},

	{kindInt, domain.DtypeBool}:      {numberToBool, fillFalseAsBool, nullableBool},
	{kindInt, domain.DtypeFloat}:     {numberToFloat, astype("float"), nil},
	{kindInt, domain.DtypeObject}:    {toText, astype("str"), nil},
	{kindInt, domain.DtypeDatetime}:  {secondsToDatetime, unitSeconds("pd.to_datetime"), nil},
	{kindInt, domain.DtypeTimedelta}: {secondsToTimedelta, unitSeconds("pd.to_timedelta"), nil},

	{kindFloat, domain.DtypeBool}:      {numberToBool, fillFalseAsBool, nullableBool},
	{kindFloat, domain.DtypeInt}:       {floatToInt, astype("int"), nullableInt},
	{kindFloat, domain.DtypeObject}:    {toText, astype("str"), nil},
	{kindFloat, domain.DtypeDatetime}:  {secondsToDatetime, unitSeconds("pd.to_datetime"), nil},
	{kindFloat, domain.DtypeTimedelta}: {secondsToTimedelta, unitSeconds("pd.to_timedelta"), nil},

	{kindString, domain.DtypeBool}:      {textToBool, call("to_boolean_series(%s)"), nil},
	{kindString, domain.DtypeInt}:       {textToInt, call("to_number_series(%s).astype('int')"), within("to_number_series(%s)", nullableInt)},
	{kindString, domain.DtypeFloat}:     {textToFloat, call("to_number_series(%s)"), nil},
	{kindString, domain.DtypeTimedelta}: {textToTimedelta, call("pd.to_timedelta(%s, errors='coerce')"), nil},

	{kindDatetime, domain.DtypeBool}:   {present, call("~%s.isnull()"), nil},
	{kindDatetime, domain.DtypeInt}:    {datetimeToInt, call("%s.astype('int') / 10**9"), nil},
	{kindDatetime, domain.DtypeFloat}:  {datetimeToFloat, call("%s.astype('int').astype('float') / 10**9"), nil},
	{kindDatetime, domain.DtypeObject}: {toText, call("%s.dt.strftime('%%Y-%%m-%%d %%X')"), nil},

	{kindTimedelta, domain.DtypeBool}:   {present, call("~%s.isnull()"), nil},
	{kindTimedelta, domain.DtypeInt}:    {timedeltaToInt, call("%s.dt.total_seconds().astype('int')"), within("%s.dt.total_seconds()", nullableInt)},
	{kindTimedelta, domain.DtypeFloat}:  {timedeltaToFloat, call("%s.dt.total_seconds()"), nil},
	{kindTimedelta, domain.DtypeObject}: {toText, astype("str"), nil},
}

// Convert converts col to the target dtype. colExpr is the pandas expression
// of the input column, for example "df1['A']".
//
// target is anything ParseTarget accepts. Converting to the column's own
// type, to its own logical type, or along a pair with no rule (boolean to
// datetime, datetime to timedelta, ...), returns the column unchanged with
// an empty expression.
func Convert(col domain.Column, target domain.Dtype, colExpr string) (Result, error) {
	if logical, ok := LogicalTarget(string(target)); ok && Classify(col) == logical {
		return Result{Column: col}, nil
	}
	target, err := ParseTarget(string(target))
	if err != nil {
		return Result{}, err
	}
	from := kindOf(col.Dtype)
	if from == kindOf(target) {
		return Result{Column: col}, nil
	}
	if from == kindString && target == domain.DtypeDatetime {
		return textToDatetime(col, colExpr), nil
	}
	r, ok := rules[pair{from, target}]
	if !ok {
		return Result{Column: col}, nil
	}

	meta := NaNIndexes(col)
	in := meta.Forget(col)
	out := make([]any, len(in))
	failed := 0
	for i, v := range in {
		converted, ok := r.value(v)
		if !ok {
			failed++
		}
		out[i] = converted
	}
	values := meta.Restore(out)
	expr := r.expr
	if r.nullable != nil && slices.ContainsFunc(values, domain.IsMissing) {
		expr = r.nullable
	}
	return Result{
		Column:     withValues(col, target, values),
		Expression: expr(colExpr),
		Failed:     failed,
	}, nil
}

func textToDatetime(col domain.Column, colExpr string) Result {
	meta := NaNIndexes(col)
	in := meta.Forget(col)
	samples := make([]string, len(in))
	for i, v := range in {
		samples[i] = FormatValue(v)
	}

	format := InferDatetimeFormat(samples)
	out := make([]any, len(in))
	failed := 0
	for i, s := range samples {
		if t, ok := format.Parse(s); ok {
			out[i] = t
		} else {
			failed++
		}
	}

	expr := fmt.Sprintf("pd.to_datetime(%s, infer_datetime_format=True, errors='coerce')", colExpr)
	if !format.Inferred {
		expr = fmt.Sprintf("pd.to_datetime(%s, format='%s', errors='coerce')", colExpr, format.Strftime)
	}
	return Result{
		Column:     withValues(col, domain.DtypeDatetime, meta.Restore(out)),
		Expression: expr,
		Failed:     failed,
		Datetime:   &format,
	}
}

func withValues(col domain.Column, dtype domain.Dtype, values []any) domain.Column {
	return domain.Column{Header: col.Header, Dtype: dtype, Values: values, Constant: col.Constant}
}

func astype(t string) func(string) string {
	return func(c string) string { return fmt.Sprintf("%s.astype('%s')", c, t) }
}

func call(format string) func(string) string {
	return func(c string) string { return fmt.Sprintf(format, c) }
}

func unitSeconds(fn string) func(string) string {
	return func(c string) string { return fmt.Sprintf("%s(%s, unit='s', errors='coerce')", fn, c) }
}

func fillFalseAsBool(c string) string {
	return fmt.Sprintf("%s.fillna(False).astype('bool')", c)
}

// nullableBool converts to the pandas nullable boolean dtype, keeping
// missing rows missing.
func nullableBool(c string) string {
	return fmt.Sprintf("%s.astype('bool').astype('boolean').mask(%s.isnull())", c, c)
}

// nullableInt truncates the present values and converts to the pandas
// nullable integer dtype, keeping missing rows missing.
func nullableInt(c string) string {
	return fmt.Sprintf("%s.where(%s.isnull(), %s.fillna(0).astype('int')).astype('Int64')", c, c, c)
}

// within applies wrap to the expression format renders for c.
func within(format string, wrap func(string) string) func(string) string {
	return func(c string) string { return wrap(fmt.Sprintf(format, c)) }
}

// FormatValue renders a single value as pandas astype('str') would.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nan"
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return FormatFloat(x)
	case time.Time:
		return FormatDatetime(x)
	case time.Duration:
		return FormatTimedelta(x)
	default:
		return fmt.Sprint(x)
	}
}

// AsFloat widens a numeric or boolean value.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toText(v any) (any, bool) { return FormatValue(v), true }

func present(any) (any, bool) { return true, true }

func boolToInt(v any) (any, bool) {
	f, ok := AsFloat(v)
	return int64(f), ok
}

func boolToFloat(v any) (any, bool) { return AsFloat(v) }

func numberToBool(v any) (any, bool) {
	f, ok := AsFloat(v)
	return f != 0, ok
}

func numberToFloat(v any) (any, bool) {
	f, ok := AsFloat(v)
	if !ok {
		return nil, false
	}
	return f, true
}

// maxInt64Float is 2^63, the first float64 above math.MaxInt64.
var maxInt64Float = math.Ldexp(1, 63)

func floatToInt(v any) (any, bool) {
	f, ok := AsFloat(v)
	if !ok || math.IsInf(f, 0) || f >= maxInt64Float || f < -maxInt64Float {
		return nil, false
	}
	return int64(f), true
}

func secondsToDatetime(v any) (any, bool) {
	f, ok := AsFloat(v)
	if !ok || math.IsInf(f, 0) {
		return nil, false
	}
	return time.Unix(0, int64(math.Round(f*1e9))).UTC(), true
}

func secondsToTimedelta(v any) (any, bool) {
	f, ok := AsFloat(v)
	if !ok || math.IsInf(f, 0) {
		return nil, false
	}
	return time.Duration(math.Round(f * 1e9)), true
}

func textToBool(v any) (any, bool) {
	return ParseBool(FormatValue(v))
}

func textToFloat(v any) (any, bool) {
	f, ok := ParseNumber(FormatValue(v))
	if !ok {
		return nil, false
	}
	return f, true
}

func textToInt(v any) (any, bool) {
	f, ok := ParseNumber(FormatValue(v))
	if !ok {
		return nil, false
	}
	return floatToInt(f)
}

func textToTimedelta(v any) (any, bool) {
	d, ok := ParseTimedelta(FormatValue(v))
	if !ok {
		return nil, false
	}
	return d, true
}

func datetimeToInt(v any) (any, bool) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, false
	}
	return t.UnixNano() / int64(time.Second), true
}

func datetimeToFloat(v any) (any, bool) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, false
	}
	return float64(t.UnixNano()) / 1e9, true
}

func timedeltaToInt(v any) (any, bool) {
	d, ok := v.(time.Duration)
	if !ok {
		return nil, false
	}
	return int64(d / time.Second), true
}

func timedeltaToFloat(v any) (any, bool) {
	d, ok := v.(time.Duration)
	if !ok {
		return nil, false
	}
	return d.Seconds(), true
}
