package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the read-only GraphQL schema over the map service.
// Object fields resolve through the json tags of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Int},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"location": &graphql.Field{Type: geoPointType},
			"label":    &graphql.Field{Type: graphql.String},
			"weight":   &graphql.Field{Type: graphql.Float},
		},
	})

	circleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CircleMarker",
		Fields: graphql.Fields{
			"location":          &graphql.Field{Type: geoPointType},
			"label":             &graphql.Field{Type: graphql.String},
			"normalized_weight": &graphql.Field{Type: graphql.Float},
			"band":              &graphql.Field{Type: graphql.String},
			"color":             &graphql.Field{Type: graphql.String},
			"radius":            &graphql.Field{Type: graphql.Float},
		},
	})

	layerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DensityLayer",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"point_count": &graphql.Field{Type: graphql.Int},
		},
	})

	sceneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Scene",
		Fields: graphql.Fields{
			"map_id":       &graphql.Field{Type: graphql.String},
			"revision":     &graphql.Field{Type: graphql.Int},
			"show_heatmap": &graphql.Field{Type: graphql.Boolean},
			"point_count":  &graphql.Field{Type: graphql.Int},
			"mode":         &graphql.Field{Type: graphql.String},
			"layer_state":  &graphql.Field{Type: graphql.String},
			"layer":        &graphql.Field{Type: layerType},
			"markers":      &graphql.Field{Type: graphql.NewList(markerType)},
			"circles":      &graphql.Field{Type: graphql.NewList(circleType)},
			"bounds":       &graphql.Field{Type: boundsType},
			"extent_m":     &graphql.Field{Type: graphql.Float},
			"viewport":     &graphql.Field{Type: viewportType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"mapView": &graphql.Field{
				Type:        sceneType,
				Description: "Current scene of a map view",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Maps.Get(p.Args["id"].(string))
				},
			},
			"maps": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "IDs of live map views",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ids, _ := deps.Maps.List(p.Args["offset"].(int), p.Args["limit"].(int))
					return ids, nil
				},
			},
			"datasets": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Stored point datasets",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Maps.Datasets(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})
		return c.JSON(result)
	}
}
