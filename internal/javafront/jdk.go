package javafront

import "github.com/chris-regnier/assay/internal/semantic"

// knownTypes seeds every per-file type table: qualified name followed by its
// direct supertypes. It covers the throwable hierarchy and the assertion
// libraries rules reason about; anything else resolves through imports or
// stays Unknown.
var knownTypes = [][]string{
	{"java.lang.Object"},
	{"java.lang.String", "java.lang.Object"},
	{"java.lang.System", "java.lang.Object"},
	{"java.lang.Math", "java.lang.Object"},
	{"java.lang.Integer", "java.lang.Number"},
	{"java.lang.Long", "java.lang.Number"},
	{"java.lang.Number", "java.lang.Object"},
	{"java.lang.Boolean", "java.lang.Object"},
	{"java.lang.Class", "java.lang.Object"},
	{"java.lang.Thread", "java.lang.Object"},
	{"java.lang.Runnable"},

	{"java.lang.Throwable", "java.lang.Object"},
	{"java.lang.Exception", "java.lang.Throwable"},
	{"java.lang.Error", "java.lang.Throwable"},
	{"java.lang.AssertionError", "java.lang.Error"},
	{"java.lang.LinkageError", "java.lang.Error"},
	{"java.lang.ExceptionInInitializerError", "java.lang.LinkageError"},
	{"java.lang.NoClassDefFoundError", "java.lang.LinkageError"},
	{"java.lang.VirtualMachineError", "java.lang.Error"},
	{"java.lang.OutOfMemoryError", "java.lang.VirtualMachineError"},
	{"java.lang.StackOverflowError", "java.lang.VirtualMachineError"},
	{"java.lang.RuntimeException", "java.lang.Exception"},
	{"java.lang.IllegalStateException", "java.lang.RuntimeException"},
	{"java.lang.IllegalArgumentException", "java.lang.RuntimeException"},
	{"java.lang.NumberFormatException", "java.lang.IllegalArgumentException"},
	{"java.lang.NullPointerException", "java.lang.RuntimeException"},
	{"java.lang.UnsupportedOperationException", "java.lang.RuntimeException"},
	{"java.lang.IndexOutOfBoundsException", "java.lang.RuntimeException"},
	{"java.lang.ArrayIndexOutOfBoundsException", "java.lang.IndexOutOfBoundsException"},
	{"java.lang.ClassCastException", "java.lang.RuntimeException"},
	{"java.lang.ArithmeticException", "java.lang.RuntimeException"},
	{"java.lang.InterruptedException", "java.lang.Exception"},
	{"java.lang.CloneNotSupportedException", "java.lang.Exception"},
	{"java.lang.ReflectiveOperationException", "java.lang.Exception"},
	{"java.lang.ClassNotFoundException", "java.lang.ReflectiveOperationException"},
	{"java.io.IOException", "java.lang.Exception"},
	{"java.io.FileNotFoundException", "java.io.IOException"},
	{"java.io.UncheckedIOException", "java.lang.RuntimeException"},
	{"java.util.NoSuchElementException", "java.lang.RuntimeException"},
	{"java.util.ConcurrentModificationException", "java.lang.RuntimeException"},
	{"java.util.concurrent.ExecutionException", "java.lang.Exception"},
	{"java.util.concurrent.TimeoutException", "java.lang.Exception"},

	{"junit.framework.AssertionFailedError", "java.lang.AssertionError"},
	{"junit.framework.ComparisonFailure", "junit.framework.AssertionFailedError"},
	{"org.junit.ComparisonFailure", "java.lang.AssertionError"},
	{"org.junit.AssumptionViolatedException", "java.lang.RuntimeException"},
	{"org.opentest4j.AssertionFailedError", "java.lang.AssertionError"},
	{"org.opentest4j.MultipleFailuresError", "java.lang.AssertionError"},
	{"org.opentest4j.IncompleteExecutionException", "java.lang.RuntimeException"},
	{"org.opentest4j.TestAbortedException", "org.opentest4j.IncompleteExecutionException"},

	{"org.junit.Assert", "java.lang.Object"},
	{"org.junit.jupiter.api.Assertions", "java.lang.Object"},
	{"junit.framework.Assert", "java.lang.Object"},
	{"junit.framework.TestCase", "junit.framework.Assert"},
	{"org.assertj.core.api.Assertions", "java.lang.Object"},
	{"org.hamcrest.MatcherAssert", "java.lang.Object"},
	{"org.hamcrest.Matchers", "java.lang.Object"},
	{"org.hamcrest.CoreMatchers", "java.lang.Object"},
	{"org.hamcrest.core.Is", "java.lang.Object"},
}

var assertMembers = []string{
	"fail", "assertEquals", "assertNotEquals", "assertTrue", "assertFalse",
	"assertNull", "assertNotNull", "assertSame", "assertNotSame",
	"assertArrayEquals", "assertThrows",
}

// staticMembers lists the static methods of known owners, used to resolve
// calls brought in by static wildcard imports.
var staticMembers = map[string][]string{
	"org.junit.Assert":                 append([]string{"assertThat"}, assertMembers...),
	"org.junit.jupiter.api.Assertions": append([]string{"assertAll", "assertDoesNotThrow", "assertTimeout", "assertInstanceOf", "assertIterableEquals", "assertLinesMatch"}, assertMembers...),
	"junit.framework.Assert":           assertMembers,
	"junit.framework.TestCase":         assertMembers,
	"org.assertj.core.api.Assertions":  {"assertThat", "fail", "assertThatThrownBy", "catchThrowable", "failBecauseExceptionWasNotThrown"},
	"org.hamcrest.MatcherAssert":       {"assertThat"},
	"org.hamcrest.Matchers":            {"is", "equalTo", "not", "containsString", "hasSize", "instanceOf", "nullValue"},
	"org.hamcrest.CoreMatchers":        {"is", "equalTo", "not", "containsString", "instanceOf", "nullValue"},
	"org.hamcrest.core.Is":             {"is"},
}

var primitives = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
}

// NewTypeTable returns a fresh table seeded with the known JDK and test
// library types. Each file gets its own table.
func NewTypeTable() *semantic.TypeTable {
	tt := semantic.NewTypeTable()
	for _, entry := range knownTypes {
		tt.Declare(entry[0], entry[1:]...)
	}
	return tt
}

func declaresStatic(owner, member string) bool {
	for _, m := range staticMembers[owner] {
		if m == member {
			return true
		}
	}
	return false
}
