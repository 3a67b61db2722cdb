package prism

// Code identifies a class of finding. The set is closed per release;
// consumers key machine-readable reports on these values, so existing
// codes are never renamed.
type Code string

const (
	// Path syntax.
	CodeParseFailure Code = "ParseFailure"

	// Registry resolution.
	CodeUnsupportedSchemaVersion Code = "UnsupportedSchemaVersion"

	// Per-file schema violations.
	CodeMissingRequiredEntity  Code = "MissingRequiredEntity"
	CodeUnknownEntity          Code = "UnknownEntity"
	CodeMissingRequiredSidecar Code = "MissingRequiredSidecar"
	CodeOrphanedSidecar        Code = "OrphanedSidecar"
	CodeMissingRequiredField   Code = "MissingRequiredField"
	CodeUnknownField           Code = "UnknownField"
	CodeTypeMismatch           Code = "TypeMismatch"
	CodeUnexpectedExtension    Code = "UnexpectedExtension"
	CodeMisplacedDatatype      Code = "MisplacedDatatype"
	CodeInvalidJSON            Code = "InvalidJSON"

	// Modality-specific semantic checks.
	CodeRangeDefinitionInvalid Code = "RangeDefinitionInvalid"
	CodeScaleEmpty             Code = "ScaleEmpty"
	CodeScaleInvalidCode       Code = "ScaleInvalidCode"
	CodeScaleDuplicateCode     Code = "ScaleDuplicateCode"
	CodeScaleDuplicateLabel    Code = "ScaleDuplicateLabel"
	CodeScaleEmptyLabel        Code = "ScaleEmptyLabel"

	// Cross-file consistency.
	CodeVariableConflict      Code = "VariableConflict"
	CodeAliasUnknownTarget    Code = "AliasUnknownTarget"
	CodeAliasChainUnsupported Code = "AliasChainUnsupported"
	CodeSessionInconsistent   Code = "SessionInconsistent"
	CodeTaskInconsistent      Code = "TaskInconsistent"

	// Dataset structure.
	CodeMissingDatasetDescription Code = "MissingDatasetDescription"
	CodeEmptyDirectory            Code = "EmptyDirectory"
	CodeNoSubjectsFound           Code = "NoSubjectsFound"

	// I/O.
	CodeIOFailure Code = "IOFailure"
)
