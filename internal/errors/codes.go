package errors

// Error codes for the shaderflow toolchain.
// These codes are used in diagnostics and documentation
// to provide consistent error identification across the CLI, REPL and LSP.
//
// Error code ranges:
// E0100-E0199: Assembly text errors
// E0200-E0299: CFG construction errors
// E0600-E0699: Structuring (control flow) errors
// E0800-E0899: Warning codes

const (
	// Assembly text errors (E0100-E0199)

	// E0100: Text could not be tokenized or parsed
	ErrorSyntax = "E0100"

	// E0101: Instruction mnemonic is not an Op name
	ErrorUnknownOpcode = "E0101"

	// E0102: OpFunction without a matching OpFunctionEnd
	ErrorUnterminatedFunction = "E0102"

	// E0103: Integer operand out of range
	ErrorInvalidLiteral = "E0103"

	// CFG construction errors (E0200-E0299)

	// E0201: Function has no instructions
	ErrorEmptyFunction = "E0201"

	// E0202: Instruction found where a block label was expected
	ErrorExpectedLabel = "E0202"

	// E0203: Block runs off the end of the function without a terminator
	ErrorUnterminatedBlock = "E0203"

	// E0204: Terminator operands do not decode into branch targets
	ErrorMissingBranchTargets = "E0204"

	// E0205: Branch to a label that is not defined in the function
	ErrorUndefinedLabel = "E0205"

	// E0206: Label defined twice
	ErrorDuplicateLabel = "E0206"

	// Structuring errors (E0600-E0699)

	// E0600: Selection merge followed by something other than a conditional branch or switch
	ErrorInvalidTerminationAfterMerge = "E0600"

	// E0601: Switch case falls through into more than one other case
	ErrorSwitchCaseMultipleTargets = "E0601"

	// E0602: Switch case fallthrough links form a cycle
	ErrorSwitchCasesFormLoop = "E0602"

	// E0603: Control flow that cannot be expressed with merge-directed constructs
	ErrorUnstructuredControlFlow = "E0603"

	// Warning codes

	// W0001: Blocks not reachable from the entry block
	WarningUnreachableBlock = "W0001"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorSyntax:
		return "Assembly text could not be parsed"
	case ErrorUnknownOpcode:
		return "Instruction mnemonic is not a known opcode"
	case ErrorUnterminatedFunction:
		return "OpFunction is missing its OpFunctionEnd"
	case ErrorInvalidLiteral:
		return "Literal operand is out of range"
	case ErrorEmptyFunction:
		return "Function body has no instructions"
	case ErrorExpectedLabel:
		return "Expected OpLabel to start a basic block"
	case ErrorUnterminatedBlock:
		return "Basic block has no termination instruction"
	case ErrorMissingBranchTargets:
		return "Termination instruction has no resolvable targets"
	case ErrorUndefinedLabel:
		return "Branch target label is not defined"
	case ErrorDuplicateLabel:
		return "Label is defined more than once"
	case ErrorInvalidTerminationAfterMerge:
		return "Invalid termination instruction following a merge instruction"
	case ErrorSwitchCaseMultipleTargets:
		return "Switch case branches to multiple cases"
	case ErrorSwitchCasesFormLoop:
		return "Switch cases form a loop"
	case ErrorUnstructuredControlFlow:
		return "Control flow is not structured"
	case WarningUnreachableBlock:
		return "Block is unreachable from the entry block"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the error code represents a warning rather than an error
func IsWarning(code string) bool {
	return code >= "E0800" && code < "E0900" || code != "" && code[0] == 'W'
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0100" && code < "E0200":
		return "Assembly"
	case code >= "E0200" && code < "E0300":
		return "Control Flow Graph"
	case code >= "E0600" && code < "E0700":
		return "Structuring"
	case IsWarning(code):
		return "Warning"
	default:
		return "Unknown"
	}
}
