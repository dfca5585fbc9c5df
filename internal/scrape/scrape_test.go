package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingFixture = `
<html><body>
  <div class="recipe">
    <p class="name"><a href="/recipe/1001/">番茄炒蛋</a></p>
    <p class="ing ellipsis">番茄、鸡蛋、葱</p>
  </div>
  <div class="recipe">
    <p class="name"><a href="/recipe/1002/">白米饭</a></p>
    <p class="ing ellipsis">大米</p>
  </div>
  <div class="recipe">
    <p class="name">无链接菜</p>
  </div>
</body></html>`

func TestParsePage(t *testing.T) {
	t.Parallel()
	recipes, err := ParsePage(listingFixture, "https://example.com")
	require.NoError(t, err)
	require.Len(t, recipes, 3)

	assert.Equal(t, "番茄炒蛋", recipes[0].Name)
	assert.Equal(t, "https://example.com/recipe/1001/", recipes[0].Link)
	assert.Equal(t, "番茄、鸡蛋、葱", recipes[0].Ingredients)

	assert.Equal(t, "白米饭", recipes[1].Name)
	assert.Equal(t, "大米", recipes[1].Ingredients)

	// An entry without a link or ingredient line still parses.
	assert.Equal(t, "无链接菜", recipes[2].Name)
	assert.Empty(t, recipes[2].Link)
	assert.Empty(t, recipes[2].Ingredients)
}

func TestParsePageEmpty(t *testing.T) {
	t.Parallel()
	recipes, err := ParsePage("<html><body><p>nothing here</p></body></html>", "")
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestParsePageSkipsBlankNames(t *testing.T) {
	t.Parallel()
	recipes, err := ParsePage(`<p class="name">  </p><p class="ing ellipsis">大米</p>`, "")
	require.NoError(t, err)
	assert.Empty(t, recipes)
}
