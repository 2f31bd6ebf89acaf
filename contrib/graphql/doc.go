// Package graphql emits a GraphQL schema (SDL) for a propel schema model.
//
// Every entity becomes an object type with its fields and relations. Root
// Query and Mutation types expose lookups, listings and create, update and
// delete operations, with input types for the writes. Entities and fields
// can be tuned with a vendor block of type "graphql":
//
//	<entity name="Book">
//	  <vendor type="graphql">
//	    <parameter name="skip" value="delete"/>
//	  </vendor>
//	  <field name="isbn" type="VARCHAR" size="13">
//	    <vendor type="graphql">
//	      <parameter name="type" value="ISBN!"/>
//	    </vendor>
//	  </field>
//	</entity>
//
// Usage:
//
//	sdl, err := graphql.NewEmitter(graphql.WithModelPackage("example.com/app/model")).Format(db)
//	if err != nil {
//		return err
//	}
//	os.WriteFile("schema.graphql", []byte(sdl), 0o644)
//
// The output is checked with gqlparser before it is returned, so a schema
// that Format returns can be handed to gqlgen or any other server.
package graphql
