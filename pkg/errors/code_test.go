package errors

import (
	"testing"
)

func TestNewCode(t *testing.T) {
	validCodes := []string{
		"filesystem.table_not_found",
		"memory.alloc_failed",
		"query.timeout",
		"storage.connection_failed",
		"table.io_error",
		"table.format_error",
	}

	for _, codeStr := range validCodes {
		code, err := NewCode(codeStr)
		if err != nil {
			t.Errorf("expected valid code '%s' to succeed, got error: %v", codeStr, err)
		}
		if code.String() != codeStr {
			t.Errorf("expected code string '%s', got '%s'", codeStr, code.String())
		}
	}

	invalidCodes := []string{
		"invalid",                     // no dot
		"filesystem.",                 // ends with dot
		".table_not_found",            // starts with dot
		"FileSystem.table_not_found",  // uppercase
		"filesystem.table-not-found",  // hyphens not allowed
		"filesystem.table_not_found.", // ends with dot
		"filesystem..table_not_found", // double dot
	}

	for _, codeStr := range invalidCodes {
		_, err := NewCode(codeStr)
		if err == nil {
			t.Errorf("expected invalid code '%s' to fail, but it succeeded", codeStr)
		}
	}
}

func TestMustNewCode(t *testing.T) {
	code := MustNewCode("filesystem.table_not_found")
	if code.String() != "filesystem.table_not_found" {
		t.Errorf("expected code 'filesystem.table_not_found', got '%s'", code.String())
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected MustNewCode to panic with invalid code")
		}
	}()
	MustNewCode("invalid")
}

func TestCodePackageAndName(t *testing.T) {
	code := MustNewCode("filesystem.table_not_found")

	if code.Package() != "filesystem" {
		t.Errorf("expected package 'filesystem', got '%s'", code.Package())
	}
	if code.Name() != "table_not_found" {
		t.Errorf("expected name 'table_not_found', got '%s'", code.Name())
	}
}

func TestCodeIsValid(t *testing.T) {
	validCode := MustNewCode("filesystem.table_not_found")
	if !validCode.IsValid() {
		t.Error("expected valid code to return true for IsValid()")
	}

	invalidCode := Code{value: "invalid"}
	if invalidCode.IsValid() {
		t.Error("expected invalid code to return false for IsValid()")
	}
}

func TestCodeEquals(t *testing.T) {
	code1 := MustNewCode("filesystem.table_not_found")
	code2 := MustNewCode("filesystem.table_not_found")
	code3 := MustNewCode("memory.alloc_failed")

	if !code1.Equals(code2) {
		t.Error("expected identical codes to be equal")
	}
	if code1.Equals(code3) {
		t.Error("expected different codes to not be equal")
	}
}

func TestCommonInternal(t *testing.T) {
	if !CommonInternal.IsValid() {
		t.Error("expected CommonInternal to be valid")
	}
	if CommonInternal.Package() != "common" {
		t.Errorf("expected package 'common', got '%s'", CommonInternal.Package())
	}
}
