package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/densitymap/api"
)

// swaggerPage renders the bundled OpenAPI document with Swagger UI from a CDN.
const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>DensityMap API - Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body style="margin:0">
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({url: '/docs/openapi.yaml', dom_id: '#swagger-ui', deepLinking: true});
  </script>
</body>
</html>`

// SetupDocs mounts the Swagger UI page and the embedded OpenAPI document.
// Revalidation of the document is left to ETagMiddleware.
func SetupDocs(app *fiber.App) {
	docs := app.Group("/docs")
	docs.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(swaggerPage)
	})
	docs.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(api.OpenAPI)
	})
}
