// Package entity contains the entity model of dEntity.
//
// An Entity is a typed object with a store wide unique id and a set of string
// properties. Record is the default implementation and is what the registry
// creates unless a type registers its own Factory.
//
// Every type is registered in a Registry under an alias. The alias is used as
// the type tag ("@type") in serialized records and, with a lowercase first
// letter, as the directory name of the type in the file store:
//
//	reg := entity.NewRegistry()
//	reg.MustRegister("User", "User", nil)
//	u := entity.NewRecord("User", "u1").Set("name", "Ann")
//
// A Codec combines a registry with a serializer (see package serializer) to
// turn entities into files and back.
package entity
