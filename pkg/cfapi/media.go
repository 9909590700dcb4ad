package cfapi

import (
	"context"
	"fmt"
)

// mediaWorkerScript is the module deployed by DeployMediaWorker: GET serves
// objects from the bound bucket with long-lived caching, PUT/POST/DELETE
// mutate it behind the API key, and every response carries permissive CORS
// headers.
const mediaWorkerScript = `export default {
  async fetch(request, env) {
    const url = new URL(request.url);
    const key = url.pathname.slice(1);

    if (request.method === 'OPTIONS') {
      return new Response(null, {
        headers: {
          'Access-Control-Allow-Origin': '*',
          'Access-Control-Allow-Methods': 'GET, PUT, POST, DELETE, OPTIONS',
          'Access-Control-Allow-Headers': 'Content-Type, Authorization, X-API-Key',
        },
      });
    }

    const corsHeaders = { 'Access-Control-Allow-Origin': '*' };

    // Auth check for write operations
    if (request.method !== 'GET') {
      const authHeader = request.headers.get('Authorization') || '';
      const apiKeyHeader = request.headers.get('X-API-Key') || '';
      const validKey = env.API_KEY;

      if (validKey) {
        const providedKey = authHeader.replace('Bearer ', '') || apiKeyHeader;
        if (providedKey !== validKey) {
          return new Response(JSON.stringify({ error: 'Unauthorized' }), {
            status: 401,
            headers: { 'Content-Type': 'application/json', ...corsHeaders }
          });
        }
      }
    }

    if (request.method === 'GET') {
      if (!key) return new Response('media service', { headers: corsHeaders });
      const object = await env.BUCKET.get(key);
      if (!object) return new Response('Not found', { status: 404, headers: corsHeaders });
      const headers = new Headers(corsHeaders);
      object.writeHttpMetadata(headers);
      headers.set('etag', object.httpEtag);
      headers.set('Cache-Control', 'public, max-age=31536000');
      return new Response(object.body, { headers });
    }

    if (request.method === 'PUT' || request.method === 'POST') {
      if (!key) return new Response('Missing filename', { status: 400, headers: corsHeaders });
      const contentType = request.headers.get('Content-Type') || 'video/mp4';
      await env.BUCKET.put(key, request.body, { httpMetadata: { contentType } });
      return new Response(JSON.stringify({ success: true, key, url: ` + "`${url.origin}/${key}`" + ` }), {
        headers: { 'Content-Type': 'application/json', ...corsHeaders },
      });
    }

    if (request.method === 'DELETE') {
      if (!key) return new Response('Missing filename', { status: 400, headers: corsHeaders });
      await env.BUCKET.delete(key);
      return new Response(JSON.stringify({ success: true }), {
        headers: { 'Content-Type': 'application/json', ...corsHeaders },
      });
    }

    return new Response('Method not allowed', { status: 405, headers: corsHeaders });
  },
};`

// DeployMediaWorker deploys the generated media-serving worker with the given
// bucket bound as BUCKET and apiKey injected as the API_KEY secret. The caller
// supplies the key so it can be shown to the user afterwards.
func (c *Client) DeployMediaWorker(ctx context.Context, name, bucketName, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("media worker requires an API key")
	}
	bindings := []WorkerBinding{
		{Type: "r2_bucket", Name: "BUCKET", BucketName: bucketName},
		{Type: "secret_text", Name: "API_KEY", Text: apiKey},
	}
	return c.DeployWorker(ctx, name, []byte(mediaWorkerScript), bindings)
}
