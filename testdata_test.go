package pbtext

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// testSchema bundles the descriptors built for these tests, playing the
// part of the "schema registry" and "message factory" collaborators
// that spec.md places out of this package's scope.
type testSchema struct {
	file          protoreflect.FileDescriptor
	testMessage   protoreflect.MessageDescriptor
	nestedMessage protoreflect.MessageDescriptor
	testEnum      protoreflect.EnumDescriptor
	extTypes      *protoregistry.Types
}

func dp(t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type { return &t }
func lp(l descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto_Label {
	return &l
}

func field(name string, num int32, label descriptorpb.FieldDescriptorProto_Label, typ descriptorpb.FieldDescriptorProto_Type, typeName, jsonName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(num),
		Label:    lp(label),
		Type:     dp(typ),
		JsonName: proto.String(jsonName),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

const (
	optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
)

func buildTestSchema() *testSchema {
	nested := &descriptorpb.DescriptorProto{
		Name: proto.String("NestedMessage"),
		Field: []*descriptorpb.FieldDescriptorProto{
			field("value", 1, optional, descriptorpb.FieldDescriptorProto_TYPE_STRING, "", "value"),
			field("number", 2, optional, descriptorpb.FieldDescriptorProto_TYPE_INT32, "", "number"),
		},
	}

	mapEntry := &descriptorpb.DescriptorProto{
		Name: proto.String("StringIntMapEntry"),
		Field: []*descriptorpb.FieldDescriptorProto{
			field("key", 1, optional, descriptorpb.FieldDescriptorProto_TYPE_STRING, "", "key"),
			field("value", 2, optional, descriptorpb.FieldDescriptorProto_TYPE_INT32, "", "value"),
		},
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
	}

	enum := &descriptorpb.EnumDescriptorProto{
		Name: proto.String("TestEnum"),
		Value: []*descriptorpb.EnumValueDescriptorProto{
			{Name: proto.String("UNKNOWN"), Number: proto.Int32(0)},
			{Name: proto.String("FOO"), Number: proto.Int32(1)},
			{Name: proto.String("BAR"), Number: proto.Int32(2)},
		},
	}

	testMsg := &descriptorpb.DescriptorProto{
		Name: proto.String("TestMessage"),
		Field: []*descriptorpb.FieldDescriptorProto{
			field("string_field", 1, optional, descriptorpb.FieldDescriptorProto_TYPE_STRING, "", "stringField"),
			field("int32_field", 2, optional, descriptorpb.FieldDescriptorProto_TYPE_INT32, "", "int32Field"),
			field("bool_field", 3, optional, descriptorpb.FieldDescriptorProto_TYPE_BOOL, "", "boolField"),
			field("float_field", 4, optional, descriptorpb.FieldDescriptorProto_TYPE_FLOAT, "", "floatField"),
			field("double_field", 5, optional, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, "", "doubleField"),
			field("bytes_field", 6, optional, descriptorpb.FieldDescriptorProto_TYPE_BYTES, "", "bytesField"),
			field("uint32_field", 7, optional, descriptorpb.FieldDescriptorProto_TYPE_UINT32, "", "uint32Field"),
			field("uint64_field", 8, optional, descriptorpb.FieldDescriptorProto_TYPE_UINT64, "", "uint64Field"),
			field("int64_field", 9, optional, descriptorpb.FieldDescriptorProto_TYPE_INT64, "", "int64Field"),
			field("nested_message", 10, optional, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".pbtext.test.NestedMessage", "nestedMessage"),
			field("repeated_nested", 11, repeated, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".pbtext.test.NestedMessage", "repeatedNested"),
			field("string_int_map", 12, repeated, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".pbtext.test.TestMessage.StringIntMapEntry", "stringIntMap"),
			field("test_enum", 13, optional, descriptorpb.FieldDescriptorProto_TYPE_ENUM, ".pbtext.test.TestEnum", "testEnum"),
			field("repeated_int32", 14, repeated, descriptorpb.FieldDescriptorProto_TYPE_INT32, "", "repeatedInt32"),
			field("foo_bar", 15, optional, descriptorpb.FieldDescriptorProto_TYPE_INT32, "", "fooBar"),
			field("repeated_enum", 16, repeated, descriptorpb.FieldDescriptorProto_TYPE_ENUM, ".pbtext.test.TestEnum", "repeatedEnum"),
			field("sint32_field", 17, optional, descriptorpb.FieldDescriptorProto_TYPE_SINT32, "", "sint32Field"),
			field("fixed64_field", 18, optional, descriptorpb.FieldDescriptorProto_TYPE_FIXED64, "", "fixed64Field"),
		},
		NestedType: []*descriptorpb.DescriptorProto{mapEntry},
		ExtensionRange: []*descriptorpb.DescriptorProto_ExtensionRange{
			{Start: proto.Int32(100), End: proto.Int32(101)},
		},
	}

	extField := field("ext_field", 100, optional, descriptorpb.FieldDescriptorProto_TYPE_INT32, "", "extField")
	extField.Extendee = proto.String(".pbtext.test.TestMessage")

	fdProto := &descriptorpb.FileDescriptorProto{
		Name:       proto.String("pbtext_test.proto"),
		Package:    proto.String("pbtext.test"),
		Syntax:     proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{testMsg, nested},
		EnumType:    []*descriptorpb.EnumDescriptorProto{enum},
		Extension:   []*descriptorpb.FieldDescriptorProto{extField},
	}

	fd, err := protodesc.NewFile(fdProto, &protoregistry.Files{})
	if err != nil {
		panic(err)
	}

	types := &protoregistry.Types{}
	exts := fd.Extensions()
	for i := 0; i < exts.Len(); i++ {
		if err := types.RegisterExtension(dynamicpb.NewExtensionType(exts.Get(i))); err != nil {
			panic(err)
		}
	}

	return &testSchema{
		file:          fd,
		testMessage:   fd.Messages().ByName("TestMessage"),
		nestedMessage: fd.Messages().ByName("NestedMessage"),
		testEnum:      fd.Enums().ByName("TestEnum"),
		extTypes:      types,
	}
}

func (s *testSchema) newMessage() protoreflect.Message {
	return dynamicpb.NewMessage(s.testMessage).ProtoReflect()
}
