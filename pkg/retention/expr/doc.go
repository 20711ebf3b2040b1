// Package expr implements the condition expression language used by
// event-based retention rules.
//
// An expression is a boolean condition evaluated against a read-only
// binding: the record's document snapshot, the evaluation instant
// (currentDate), and the triggering event's input value (eventInput).
// Evaluation is side-effect free; the document must be a detached snapshot.
//
// # Grammar
//
// The language supports literals (strings, numbers, booleans, nil),
// identifiers, property access, string methods, arithmetic, comparisons,
// and boolean combinators:
//
//	document.title == eventInput
//	document.path.startsWith("/records/finance")
//	document.properties["dc:expired"] < currentDate
//	eventInput.contains("approved") && !document.trashed
//
// Operator precedence, loosest to tightest: || then && then == != then
// < <= > >= then + - then * / then unary ! - then postfix selectors,
// indexing, and method calls.
//
// # Bindings
//
//   - document: the record's document (fields id, type, path, title,
//     trashed, locked, plus indexed access to metadata properties)
//   - currentDate: evaluation time
//   - eventInput: the triggering event's input string
//
// Expressions come from trusted rule authors only. Event input is
// syntax-validated before it can reach a binding, and the evaluator never
// interprets it as code.
//
// # Errors
//
// Compile returns a *SyntaxError for malformed expressions; Eval returns a
// *EvalError for type mismatches or unknown identifiers. Both are
// rule-authoring defects, not runtime faults to recover from.
package expr
