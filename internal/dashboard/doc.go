// Package dashboard turns the dashboard state into charts.
//
// ParseFilter rebuilds a domain.Filter from the query parameters the browser
// sends on every interaction. The Renderer then projects query results into
// Vega-Lite v5 documents that the page embeds with vega-embed:
//
//   - timeseries: one line per region (and demographic group when several are selected)
//   - choropleth: latest value per country on a world map
//   - grouped_bar: one bar per demographic group within each period
//   - regional: average per region group over time
//   - forecast: history, forecast and confidence band layered
//
// RenderPNG draws the same documents server-side with gonum/plot for export.
// The renderer holds no state beyond its configuration.
package dashboard
