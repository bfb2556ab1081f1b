package index

import (
	"context"
	_ "embed"
	"sync"
)

// javaLang lists the public top-level types of java.lang, which every
// compilation unit imports implicitly.
var javaLang = map[string]bool{
	"AbstractMethodError": true, "Appendable": true, "ArithmeticException": true,
	"ArrayIndexOutOfBoundsException": true, "ArrayStoreException": true, "AssertionError": true,
	"AutoCloseable": true, "Boolean": true, "Byte": true, "CharSequence": true, "Character": true,
	"Class": true, "ClassCastException": true, "ClassCircularityError": true,
	"ClassFormatError": true, "ClassLoader": true, "ClassNotFoundException": true,
	"CloneNotSupportedException": true, "Cloneable": true, "Comparable": true,
	"Deprecated": true, "Double": true, "Enum": true, "EnumConstantNotPresentException": true,
	"Error": true, "Exception": true, "ExceptionInInitializerError": true, "Float": true,
	"FunctionalInterface": true, "IllegalAccessError": true, "IllegalAccessException": true,
	"IllegalArgumentException": true, "IllegalMonitorStateException": true,
	"IllegalStateException": true, "IllegalThreadStateException": true,
	"IncompatibleClassChangeError": true, "IndexOutOfBoundsException": true,
	"InheritableThreadLocal": true, "InstantiationError": true, "InstantiationException": true,
	"Integer": true, "InternalError": true, "InterruptedException": true, "Iterable": true,
	"LinkageError": true, "Long": true, "Math": true, "NegativeArraySizeException": true,
	"NoClassDefFoundError": true, "NoSuchFieldError": true, "NoSuchFieldException": true,
	"NoSuchMethodError": true, "NoSuchMethodException": true, "NullPointerException": true,
	"Number": true, "NumberFormatException": true, "Object": true, "OutOfMemoryError": true,
	"Override": true, "Package": true, "Process": true, "ProcessBuilder": true,
	"Readable": true, "Record": true, "ReflectiveOperationException": true, "Runnable": true,
	"Runtime": true, "RuntimeException": true, "RuntimePermission": true, "SafeVarargs": true,
	"SecurityException": true, "Short": true, "StackOverflowError": true,
	"StackTraceElement": true, "StrictMath": true, "String": true, "StringBuffer": true,
	"StringBuilder": true, "StringIndexOutOfBoundsException": true, "SuppressWarnings": true,
	"System": true, "Thread": true, "ThreadDeath": true, "ThreadGroup": true,
	"ThreadLocal": true, "Throwable": true, "TypeNotPresentException": true,
	"UnknownError": true, "UnsatisfiedLinkError": true, "UnsupportedClassVersionError": true,
	"UnsupportedOperationException": true, "VerifyError": true, "VirtualMachineError": true,
	"Void": true,
}

// JavaLang returns the fully qualified name of a java.lang type given its
// simple name.
func JavaLang(simple string) (string, bool) {
	if javaLang[simple] {
		return "java.lang." + simple, true
	}
	return "", false
}

//go:embed jdk.yaml
var jdkYAML []byte

var (
	jdkOnce sync.Once
	jdk     *Memory
)

// JDK returns a small index of commonly used JDK types, enough for
// suggestions on strings, boxed numbers, collections and the members
// inherited from Object.
func JDK() Index {
	jdkOnce.Do(func() {
		m, err := Decode(jdkYAML)
		if err != nil {
			panic("index: embedded jdk.yaml: " + err.Error())
		}
		jdk = m
	})
	return jdkIndex{jdk}
}

// jdkIndex hides Add and Remove of the shared Memory.
type jdkIndex struct{ m *Memory }

func (j jdkIndex) LookupType(ctx context.Context, fqn string) (*TypeEntry, error) {
	return j.m.LookupType(ctx, fqn)
}

func (j jdkIndex) TypeNames(ctx context.Context) ([]string, error) {
	return j.m.TypeNames(ctx)
}
