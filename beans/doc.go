/*
Package beans reads and writes Go structs as ordered property maps, driven by the
metadata of an introspect.Registry.

# Metadata Kinds

The bean layer consults four kinds of metadata, resolved with the usual precedence
(the type itself, its ancestors, its interfaces, then its package):

• KindTypeName names a type. A string applies only to the type it is declared on; a
NameFunc applies to every type that inherits it.

• KindProperties lists, in order, the only properties a type exposes.

• KindPropertyName names a field. A string applies to the field it is declared on; a
NameFunc applies to every field that inherits it, so a package-wide naming strategy
is one declaration.

• KindIgnore hides a property: true on a field, or a list of field or property names
on a type, ancestor, interface or package.

Struct tags decode into the same kinds through DecodeTag:

	type Wizard struct {
		Name  string `span:"name"`
		House string `span:"-"`
	}

# Properties

ToMap walks the public fields of a value, ancestors first, and returns Properties,
which keep their order when written as YAML, BSON and JSON. Populate and FromMap go
the other way, instantiating the target through fuzzy constructor selection.
*/
package beans
